// Package transfer implements the confidential transfer statement.
//
// Overview:
//   - Circuit proves that a sender who knows priv and the plaintext balance
//     of its public ciphertext moves a 32-bit amount to a recipient, and that
//     both updated ciphertexts are computed correctly
//   - Prepare is the native twin of the circuit: it runs the same seven steps,
//     reports the first violated check and yields the witness assignment
//   - CreateTx and VerifyTx wrap proving and verification of one transfer;
//     ProveBatch proves independent transfers in parallel
//
// Security Model:
//   - Balances, the amount (unless disclosed), priv and the randomness stay
//     secret; only the four ciphertexts and both public keys are public
//   - Both the amount and the remaining balance are range checked to 32 bits,
//     which rules out overdrafts through field wrap-around
//   - The statement is stateless; callers serialize updates per account and
//     never store outputs of a transfer that failed to prove or verify
package transfer
