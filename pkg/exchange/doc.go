// Package exchange implements the per-identity key agreement box used to
// encrypt messages between known correspondents.
//
// A Room owns a long-term X25519 keypair and the set of peer public keys it
// has exchanged messages with. For every message it derives the pair key
// afresh (X25519 followed by HChaCha20, as crypto_box_curve25519xchacha20poly1305
// does) and seals with XChaCha20-Poly1305 under a random 24-byte nonce. The resulting
// EncryptedMessage carries the sender's public key so the recipient can
// derive the same pair key.
//
// Encrypting for, or decrypting from, a peer adds that peer to the Room's
// known contacts. Persist the Room after either call to keep what it learned.
//
// A Room is not safe for concurrent mutation.
package exchange
