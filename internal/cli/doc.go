// Package cli implements vaultctl, the command-line front end of the vault.
//
// Every command runs against an App that wires configuration, the metadata
// store (PostgreSQL), the object store (S3, local directory or memory), the
// identity provider and the vault services. Typical use:
//
//	vaultctl --principal u1 --email u1@example.com file upload ./report.pdf
//	vaultctl file download <file-id> -o report.pdf
//	vaultctl folder create Team
//	vaultctl access grant <folder-id> u2 read
//
// NewRootCommand builds the command tree; Execute runs it for main.
package cli
