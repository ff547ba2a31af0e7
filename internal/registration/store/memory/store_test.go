package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"regdesk/internal/registration/store/storetest"
)

type InMemorySuite struct {
	storetest.Suite
}

func TestInMemorySuite(t *testing.T) {
	s := new(InMemorySuite)
	s.NewStore = func() storetest.Registry { return New() }
	suite.Run(t, s)
}
