// Package domain contains the core types of the generation gateway:
// generation requests, generated artifacts, and the enumerations that
// describe them. It has no dependencies on infrastructure packages and
// defines the vocabulary the rest of the application speaks.
package domain
