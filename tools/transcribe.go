package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const transcribeTimeout = 2 * time.Minute

// TranscribeTool converts an audio file to text by shelling out to an
// external STT command (e.g. a whisper wrapper script). The command
// receives the audio path as its single argument and must print the
// transcript on stdout. Optional extension capability.
type TranscribeTool struct {
	command string
}

// NewTranscribeTool creates the transcription capability. command is the
// STT executable; empty disables the tool at registration time.
func NewTranscribeTool(command string) *TranscribeTool {
	return &TranscribeTool{command: command}
}

func (t *TranscribeTool) Name() string {
	return NameTranscribe
}

func (t *TranscribeTool) Description() string {
	return "Transcribe un archivo de audio (nota de voz) a texto."
}

func (t *TranscribeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Ruta local del archivo de audio a transcribir.",
			},
		},
		"required": []string{"file_path"},
	}
}

func (t *TranscribeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	filePath, _ := args["file_path"].(string)
	if filePath == "" {
		return "", fmt.Errorf("file_path is required")
	}
	if t.command == "" {
		return "", fmt.Errorf("no STT command configured")
	}
	if _, err := os.Stat(filePath); err != nil {
		return "", fmt.Errorf("audio file not found: %s", filePath)
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, t.command, filePath).Output()
	if err != nil {
		return "", fmt.Errorf("running %s: %w", t.command, err)
	}
	transcript := strings.TrimSpace(string(out))
	if transcript == "" {
		return "", fmt.Errorf("%s produced no transcript", t.command)
	}
	return transcript, nil
}
