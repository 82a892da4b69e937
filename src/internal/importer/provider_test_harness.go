package importer

import (
	"testing"
)

// ProviderTestHarness runs the checks every provider must pass.
type ProviderTestHarness struct {
	Provider     Provider
	ExpectedName string
}

// RunAll runs all standard provider tests.
func (h *ProviderTestHarness) RunAll(t *testing.T) {
	t.Run("Name", h.TestName)
	t.Run("DisplayName", h.TestDisplayName)
	t.Run("DetectVersions", h.TestDetectVersions)
	t.Run("ManualInstructions", h.TestManualInstructions)
}

// TestName verifies the provider returns the expected name.
func (h *ProviderTestHarness) TestName(t *testing.T) {
	if name := h.Provider.Name(); name != h.ExpectedName {
		t.Errorf("Name() = %q, want %q", name, h.ExpectedName)
	}
}

// TestDisplayName verifies the provider returns a display name.
func (h *ProviderTestHarness) TestDisplayName(t *testing.T) {
	if h.Provider.DisplayName() == "" {
		t.Error("DisplayName() returned empty string")
	}
}

// TestDetectVersions verifies DetectVersions never fails on a missing install.
func (h *ProviderTestHarness) TestDetectVersions(t *testing.T) {
	versions, err := h.Provider.DetectVersions()
	if err != nil {
		t.Errorf("DetectVersions() error = %v, want nil", err)
	}
	if versions == nil {
		t.Error("DetectVersions() returned nil, want empty slice")
	}
}

// TestManualInstructions verifies manual instructions are provided.
func (h *ProviderTestHarness) TestManualInstructions(t *testing.T) {
	if h.Provider.ManualInstructions() == "" {
		t.Error("ManualInstructions() returned empty string")
	}
}
