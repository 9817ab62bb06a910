package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

func newApplyCommand() *command {
	cmd := &command{
		Name:        "apply",
		Description: "apply [--watch] [--registry url] <component> <file.yaml>",
		Flags:       flag.NewFlagSet("apply", flag.ExitOnError),
	}
	cmd.Flags.Bool("watch", false, "resubmit the declaration whenever the file changes")
	cmd.Flags.String("registry", "http://localhost:8080", "Registry base URL")
	cmd.Run = func(args []string) error { return runApply(cmd, args) }
	return cmd
}

func runApply(cmd *command, args []string) error {
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	positional := cmd.Flags.Args()
	if len(positional) != 2 {
		return fmt.Errorf("usage: apply [--watch] [--registry url] <component> <file.yaml>")
	}
	component, file := positional[0], positional[1]

	registry := cmd.Flags.Lookup("registry").Value.String()
	watch := cmd.Flags.Lookup("watch").Value.String() == "true"

	if err := applyDeclaration(registry, component, file); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	return watchAndApply(registry, component, file)
}

// applyDeclaration uploads the declaration file at path for component to
// the registry's multipart PUT endpoint.
func applyDeclaration(registry, component, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("yaml_file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/components/%s/interfaces/yaml", registry, component)
	req, err := http.NewRequest(http.MethodPut, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to apply declaration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("registry rejected declaration (%s): %s", resp.Status, string(respBody))
	}

	fmt.Printf("applied declaration for component %s from %s\n", component, path)
	return nil
}

// watchAndApply re-applies the declaration whenever its file changes,
// until the watcher is interrupted.
func watchAndApply(registry, component, file string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(file); err != nil {
		return fmt.Errorf("failed to watch %s: %w", file, err)
	}

	log.Printf("watching %s for changes", file)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Printf("detected change in %s, re-applying", event.Name)
			if err := applyDeclaration(registry, component, file); err != nil {
				log.Printf("apply failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher error: %v", err)
		}
	}
}
