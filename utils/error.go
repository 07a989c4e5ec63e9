package utils

import "errors"

// ErrorRecordNotFound is the storage-layer sentinel for lookups that matched
// nothing. Handlers translate it to a 404 response.
var ErrorRecordNotFound = errors.New("record not found")
