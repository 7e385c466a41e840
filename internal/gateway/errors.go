package gateway

import "errors"

// ErrQualityRejected means generation succeeded but every draft within
// the regeneration budget failed quality assessment. It is distinct from
// provider failure: the providers worked, the content did not clear the
// bar. The last report travels in the Result alongside this error.
var ErrQualityRejected = errors.New("generated content failed quality assessment")
