package postgres

import "github.com/tinoosan/bankledger/internal/service/account"

var (
	_ account.Repo   = (*Store)(nil)
	_ account.Writer = (*Store)(nil)
)
