package v1

import (
	"github.com/tinoosan/bankledger/internal/storage/memory"
	"github.com/tinoosan/bankledger/internal/storage/mysql"
	"github.com/tinoosan/bankledger/internal/storage/postgres"
)

// Compile-time assertions that every store can back /readyz.
var (
	_ ReadyChecker = (*memory.Store)(nil)
	_ ReadyChecker = (*postgres.Store)(nil)
	_ ReadyChecker = (*mysql.Store)(nil)
)
