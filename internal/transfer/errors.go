package transfer

import "errors"

// ErrConsistencyMismatch indicates that the sender's public ciphertext does not
// encrypt the claimed balance under the claimed key.
var ErrConsistencyMismatch = errors.New("transfer: sender ciphertext does not match balance and key")
