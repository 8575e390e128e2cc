// internal/services/services_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowTestSuite))
}
