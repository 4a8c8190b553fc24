package memory

import (
	"testing"

	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/repositories/database/storetest"
	"github.com/stretchr/testify/suite"
)

func TestStoreSuite(t *testing.T) {
	suite.Run(t, &storetest.StoreSuite{
		NewStore: func(*testing.T) portsrepo.Store { return New() },
	})
}
