package memory

import "github.com/tinoosan/bankledger/internal/service/account"

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ account.Repo   = (*Store)(nil)
	_ account.Writer = (*Store)(nil)
)
