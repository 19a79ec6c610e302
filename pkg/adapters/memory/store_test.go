package memory_test

import (
	"testing"

	"github.com/finecision/finecision/pkg/adapters/memory"
	"github.com/finecision/finecision/pkg/ports"
)

func TestMemoryWorkflowStore_Contract(t *testing.T) {
	ports.RunWorkflowStoreContract(t, memory.NewWorkflowStore())
}

func TestMemoryApplicationStore_Contract(t *testing.T) {
	ports.RunApplicationStoreContract(t, memory.NewApplicationStore())
}

func TestMemoryLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, memory.NewLocker())
}
