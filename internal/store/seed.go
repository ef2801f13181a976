package store

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/vyrodovalexey/todo-api/internal/model"
)

// seedFile is the TOML layout of a seed file:
//
//	[[todo]]
//	title = "Learn Go"
//	isCompleted = false
type seedFile struct {
	Todos []model.CreateTodoInput `toml:"todo"`
}

// DefaultSeed returns the todos a fresh store starts with.
func DefaultSeed() []model.CreateTodoInput {
	return []model.CreateTodoInput{
		{Title: "Learn Go", IsCompleted: false},
		{Title: "Build Web API", IsCompleted: false},
		{Title: "Write Documentation", IsCompleted: true},
	}
}

// LoadSeedFile reads seed todos from a TOML file.
func LoadSeedFile(path string) ([]model.CreateTodoInput, error) {
	var f seedFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return f.Todos, nil
}

// Seed creates the given todos in order, but only if s is empty.
// It returns the number of todos created.
func Seed[K model.ID](ctx context.Context, s Store[K], todos []model.CreateTodoInput) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i := range todos {
		if _, err := s.Create(ctx, &todos[i]); err != nil {
			return i, fmt.Errorf("seed todo %d: %w", i, err)
		}
	}

	return len(todos), nil
}
