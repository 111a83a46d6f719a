package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vocabuddy/internal/models"
	"vocabuddy/internal/repository"
)

var importCmd = &cobra.Command{
	Use:   "import-words <file.json>",
	Short: "Load enriched words for a user from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().String("user", "", "Owner of the imported words (required)")
	_ = importCmd.MarkFlagRequired("user")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger := loadConfig(cmd)
	userID, _ := cmd.Flags().GetString("user")

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	words, err := decodeWords(f, userID)
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewWordRepository(db)
	for i := range words {
		if err := repo.CreateWord(cmd.Context(), &words[i]); err != nil {
			return fmt.Errorf("import %q: %w", words[i].Text, err)
		}
	}

	logger.Info("imported words", "user_id", userID, "count", len(words))
	return nil
}

// decodeWords reads a JSON array of words and assigns ownership and ids
func decodeWords(r io.Reader, userID string) ([]models.Word, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("a user id is required")
	}

	var words []models.Word
	if err := json.NewDecoder(r).Decode(&words); err != nil {
		return nil, fmt.Errorf("decode words: %w", err)
	}

	for i := range words {
		w := &words[i]
		if strings.TrimSpace(w.Text) == "" {
			return nil, fmt.Errorf("word %d has no text", i)
		}
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		w.UserID = userID
		w.Learning.Normalize()
		if !w.Learning.Status.Valid() {
			return nil, fmt.Errorf("word %q has unknown status %q", w.Text, w.Learning.Status)
		}
	}
	return words, nil
}
