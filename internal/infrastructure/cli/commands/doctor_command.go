package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/deepchat/internal/app"
	"github.com/doeshing/deepchat/internal/domain"
)

type checkStatus string

const (
	statusOK   checkStatus = "OK"
	statusWarn checkStatus = "WARN"
	statusFail checkStatus = "FAIL"
)

type healthCheck struct {
	Status  checkStatus
	Name    string
	Details string
}

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose environment setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctorDiagnostics(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// runDoctorDiagnostics runs environment diagnostics
func runDoctorDiagnostics(ctx context.Context, out io.Writer, container *app.Container) error {
	checks := []healthCheck{
		configCheck(container),
		storageCheck(container),
	}
	checks = append(checks, credentialChecks(container)...)
	checks = append(checks, localModelCheck(ctx, container))

	failed := 0
	for _, check := range checks {
		fmt.Fprintf(out, "[%s] %s - %s\n", check.Status, check.Name, check.Details)
		if check.Status == statusFail {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func configCheck(container *app.Container) healthCheck {
	return healthCheck{
		Status:  statusOK,
		Name:    "config",
		Details: fmt.Sprintf("loaded, default model %s", container.Config.Preferences.DefaultModel),
	}
}

func storageCheck(container *app.Container) healthCheck {
	if container.StorageDegraded {
		return healthCheck{
			Status:  statusWarn,
			Name:    "storage",
			Details: fmt.Sprintf("database at %s unavailable, running in-memory", container.Config.History.DatabasePath),
		}
	}
	return healthCheck{
		Status:  statusOK,
		Name:    "storage",
		Details: fmt.Sprintf("database open at %s, %d exchanges", container.Config.History.DatabasePath, container.History.Len()),
	}
}

// credentialChecks reports, per hosted endpoint, whether its API key
// environment variable is set. Models without an auth variable are skipped.
func credentialChecks(container *app.Container) []healthCheck {
	var checks []healthCheck
	for _, endpoint := range container.Config.Models {
		if endpoint.AuthEnvVar == "" {
			continue
		}
		if os.Getenv(endpoint.AuthEnvVar) == "" {
			checks = append(checks, healthCheck{
				Status:  statusWarn,
				Name:    "credentials/" + endpoint.ID,
				Details: fmt.Sprintf("%s is not set", endpoint.AuthEnvVar),
			})
			continue
		}
		checks = append(checks, healthCheck{
			Status:  statusOK,
			Name:    "credentials/" + endpoint.ID,
			Details: fmt.Sprintf("%s is set", endpoint.AuthEnvVar),
		})
	}
	return checks
}

func localModelCheck(ctx context.Context, container *app.Container) healthCheck {
	var local *domain.ModelEndpoint
	for i := range container.Config.Models {
		if container.Config.Models[i].Kind == domain.ProviderKindOllama {
			local = &container.Config.Models[i]
			break
		}
	}
	if local == nil {
		return healthCheck{Status: statusWarn, Name: "local-model", Details: "no locally served model configured"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	present, err := container.Factory.Catalog().Has(probeCtx, local.WireModel)
	switch {
	case err != nil:
		return healthCheck{
			Status:  statusFail,
			Name:    "local-model",
			Details: fmt.Sprintf("runtime at %s unreachable: %v", local.Endpoint, err),
		}
	case !present:
		return healthCheck{
			Status:  statusWarn,
			Name:    "local-model",
			Details: fmt.Sprintf("%s not downloaded yet, it will be pulled on first use", local.WireModel),
		}
	default:
		return healthCheck{
			Status:  statusOK,
			Name:    "local-model",
			Details: fmt.Sprintf("%s present at %s", local.WireModel, local.Endpoint),
		}
	}
}
