package main

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bobmcallan/gqlbridge/internal/remote"
)

// tokenCommandRefresher runs a shell command and uses its trimmed stdout as
// the bearer token. The command is invoked fresh on every refresh so expiring
// credentials (gcloud, aws sso, vault) stay current.
func tokenCommandRefresher(command string) remote.RefreshFunc {
	return func(ctx context.Context) (string, error) {
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		out, err := cmd.Output()
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
				return "", fmt.Errorf("token command failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
			}
			return "", fmt.Errorf("token command failed: %w", err)
		}
		token := strings.TrimSpace(string(out))
		if token == "" {
			return "", fmt.Errorf("token command produced no output")
		}
		return token, nil
	}
}
