package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

const (
	PromptPasteDescription = "Type the job description"
	PromptDescriptionFile  = "Read it from a file"
	PromptPostingURL       = "Fetch it from a job posting URL"
)

// promptMissing asks for the resume and job description when they were not given as flags.
func promptMissing(in *matchInput) error {
	if in.ResumePath == "" {
		path, err := (&promptui.Prompt{
			Label:    "Resume file",
			Validate: validateFile,
		}).Run()
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
		in.ResumePath = strings.TrimSpace(path)
	}

	if in.JobDescription != "" || in.JobFile != "" || in.JobURL != "" {
		return nil
	}

	sel := promptui.Select{
		Label: "Where is the job description?",
		Items: []string{PromptPasteDescription, PromptDescriptionFile, PromptPostingURL},
	}
	_, choice, err := sel.Run()
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}

	switch choice {
	case PromptPasteDescription:
		text, err := (&promptui.Prompt{Label: "Job description", Validate: validateNotBlank}).Run()
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
		in.JobDescription = text
	case PromptDescriptionFile:
		path, err := (&promptui.Prompt{Label: "Job description file", Validate: validateFile}).Run()
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
		in.JobFile = strings.TrimSpace(path)
	case PromptPostingURL:
		url, err := (&promptui.Prompt{Label: "Job posting URL", Validate: validateURL}).Run()
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
		in.JobURL = strings.TrimSpace(url)
	}

	return nil
}

func validateNotBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}

func validateFile(s string) error {
	if err := validateNotBlank(s); err != nil {
		return err
	}
	info, err := os.Stat(strings.TrimSpace(s))
	if err != nil {
		return errors.New("file not found")
	}
	if info.IsDir() {
		return errors.New("path is a directory")
	}
	return nil
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return errors.New("URL must start with http:// or https://")
	}
	return nil
}
