package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/stvgt/interfaces/internal/registry"
)

type componentsEnvelope struct {
	Components []registry.Component `json:"components"`
}

func newDumpCommand() *command {
	cmd := &command{
		Name:        "dump",
		Description: "dump [--registry url] prints GET /components as JSON",
		Flags:       flag.NewFlagSet("dump", flag.ExitOnError),
	}
	cmd.Flags.String("registry", "http://localhost:8080", "Registry base URL")
	cmd.Run = func(args []string) error { return runDump(cmd, args) }
	return cmd
}

func runDump(cmd *command, args []string) error {
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	registryURL := cmd.Flags.Lookup("registry").Value.String()

	components, err := fetchComponents(registryURL)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(componentsEnvelope{Components: components})
}

func fetchComponents(registryURL string) ([]registry.Component, error) {
	url := fmt.Sprintf("%s/api/v1/components", registryURL)
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dump components: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned %s", resp.Status)
	}

	var body componentsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return body.Components, nil
}
