package extraction_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/formweave/extraction-planner/internal/extraction"
)

func stubFactory(executor extraction.Executor) extraction.Factory {
	return func() (extraction.Executor, error) {
		return executor, nil
	}
}

func TestRegistryRegister(t *testing.T) {
	registry := extraction.NewRegistry()

	require.NoError(t, registry.Register("hazard_report", stubFactory(&stubExecutor{})))
	require.True(t, registry.IsRegistered("hazard_report"))
	require.False(t, registry.IsRegistered("other_form"))
}

func TestRegistryRejectsNilFactory(t *testing.T) {
	registry := extraction.NewRegistry()

	err := registry.Register("hazard_report", nil)
	require.Error(t, err)
	require.IsType(t, &extraction.ErrInvalidExecutor{}, err)
	require.False(t, registry.IsRegistered("hazard_report"))
}

func TestRegistryDuplicateKeepsFirst(t *testing.T) {
	registry := extraction.NewRegistry()

	first := &stubExecutor{}
	second := &stubExecutor{}
	require.NoError(t, registry.Register("hazard_report", stubFactory(first)))

	err := registry.Register("hazard_report", stubFactory(second))
	require.Error(t, err)
	require.IsType(t, &extraction.ErrDuplicateCode{}, err)

	executor, err := registry.GetExecutor("hazard_report")
	require.NoError(t, err)
	require.Same(t, first, executor)
}

func TestRegistryGetUnknownCode(t *testing.T) {
	registry := extraction.NewRegistry()

	_, err := registry.GetExecutor("missing_form")
	require.Error(t, err)
	require.IsType(t, &extraction.ErrUnknownCode{}, err)
}

func TestRegistryCodesSorted(t *testing.T) {
	registry := extraction.NewRegistry()

	require.NoError(t, registry.Register("work_permit", stubFactory(&stubExecutor{})))
	require.NoError(t, registry.Register("hazard_report", stubFactory(&stubExecutor{})))

	require.Equal(t, []string{"hazard_report", "work_permit"}, registry.Codes())
}

func TestRegistryUnregister(t *testing.T) {
	registry := extraction.NewRegistry()

	require.NoError(t, registry.Register("hazard_report", stubFactory(&stubExecutor{})))
	require.NoError(t, registry.Unregister("hazard_report"))
	require.False(t, registry.IsRegistered("hazard_report"))

	err := registry.Unregister("hazard_report")
	require.Error(t, err)
	require.IsType(t, &extraction.ErrUnknownCode{}, err)
}
