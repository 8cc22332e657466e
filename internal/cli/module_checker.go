package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/utils"
)

// RuntimeModule is the module generated code imports when a strategy or an
// assertion needs the runtime package
const RuntimeModule = "github.com/toyz/mergeme"

// ModuleChecker verifies that the module owning a target can compile the
// generated code
type ModuleChecker struct {
	goMod *utils.GoModParser
}

// NewModuleChecker creates a module checker
func NewModuleChecker(goMod *utils.GoModParser) *ModuleChecker {
	return &ModuleChecker{goMod: goMod}
}

// ModuleReport is the outcome of a module check
type ModuleReport struct {
	Module   *utils.ModuleInfo // nil when dir is not inside a module
	Warnings []string
}

// Check inspects the go.mod governing dir. A go directive older than 1.18 is
// an error; a missing go.mod or a missing runtime requirement are warnings.
func (m *ModuleChecker) Check(dir string, usesRuntime bool) (*ModuleReport, error) {
	report := &ModuleReport{}

	info, err := m.goMod.FindModule(dir)
	if err != nil {
		if stderrors.Is(err, utils.ErrGoModNotFound) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s is not inside a Go module", dir))
			return report, nil
		}
		return nil, errors.WrapModuleError(dir, err)
	}
	report.Module = info

	if !info.SupportsGenerics() {
		return report, errors.WrapModuleError(info.GoModPath,
			fmt.Errorf("go %s is older than go %s, which generated code requires", info.GoVersion, utils.MinimumGoVersion)).
			WithSuggestion(fmt.Sprintf("raise the go directive: go mod edit -go=%s", utils.MinimumGoVersion))
	}

	if usesRuntime && !info.RequiresModule(RuntimeModule) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("module %s does not require %s; run go get %s", info.Path, RuntimeModule, RuntimeModule))
	}
	return report, nil
}
