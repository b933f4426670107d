/*
Package vault keeps a bounded list of site credentials in memory and stores
them in a single encrypted file on disk.


Encryption

Records are sealed with AES-256-GCM by default, or ChaCha20-Poly1305 when
configured. Both take a 32-byte key and a 12-byte nonce and produce a
16-byte tag. The key is supplied by the caller as raw bytes; no key
derivation happens here. A fresh random nonce is generated on every save.


Binary Format

   12 bytes for the nonce

   N bytes of ciphertext, N being the length of the plaintext

   16 bytes for the authentication tag

The plaintext is the list of records, each serialized as

   site:username:password

In the default framed layout every record is preceded by its length as a
big-endian uint16. The slotted layout reproduces the legacy format where
every record fills a NUL padded slot of 200 bytes. The delimiter, NUL and
other control characters are rejected when a record is added.


Limitation

The whole file is rewritten on every save and read on every load. It is
meant for a few hundred bytes per record and a hundred records.
*/
package vault
