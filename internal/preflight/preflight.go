// Package preflight validates the environment before hydration runs.
package preflight

import (
	"os/exec"
)

// BinaryCheck represents an external binary and its purpose.
type BinaryCheck struct {
	Name        string
	Required    bool   // false = warning only
	InstallHint string // e.g., "brew install sops" or "https://..."
}

// requiredBinaries must be present for stevedore to hydrate manifests.
// The build tool itself is checked per-run since it can be overridden.
var requiredBinaries = []BinaryCheck{
	{
		Name:        "kustomize",
		Required:    true,
		InstallHint: "Install kustomize: https://kubectl.docs.kubernetes.io/installation/kustomize/",
	},
}

// optionalBinaries enhance stevedore but are not strictly required.
var optionalBinaries = []BinaryCheck{
	{
		Name:        "git",
		Required:    false,
		InstallHint: "Install git: https://git-scm.com/downloads",
	},
	{
		Name:        "sops",
		Required:    false,
		InstallHint: "Install sops: brew install sops",
	},
	{
		Name:        "age",
		Required:    false,
		InstallHint: "Install age: brew install age",
	},
	{
		Name:        "kubeconform",
		Required:    false,
		InstallHint: "Install kubeconform: brew install kubeconform",
	},
}

// CheckRequiredBinaries returns missing required binaries.
func CheckRequiredBinaries() []BinaryCheck {
	return missingFrom(requiredBinaries)
}

// CheckOptionalBinaries returns missing optional binaries.
func CheckOptionalBinaries() []BinaryCheck {
	return missingFrom(optionalBinaries)
}

func missingFrom(bins []BinaryCheck) []BinaryCheck {
	var missing []BinaryCheck
	for _, bin := range bins {
		if _, err := exec.LookPath(bin.Name); err != nil {
			missing = append(missing, bin)
		}
	}
	return missing
}

// CheckAll performs every check. Errors are missing required binaries,
// warnings are missing optional ones, each with an install hint.
func CheckAll() (warnings []string, errors []string) {
	for _, bin := range CheckRequiredBinaries() {
		errors = append(errors, bin.Name+": "+bin.InstallHint)
	}
	for _, bin := range CheckOptionalBinaries() {
		warnings = append(warnings, bin.Name+": "+bin.InstallHint)
	}
	return warnings, errors
}

// IsBinaryAvailable checks if a specific binary is available in PATH.
func IsBinaryAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// AllBinaries returns every configured binary, required first.
func AllBinaries() []BinaryCheck {
	all := make([]BinaryCheck, 0, len(requiredBinaries)+len(optionalBinaries))
	all = append(all, requiredBinaries...)
	return append(all, optionalBinaries...)
}
