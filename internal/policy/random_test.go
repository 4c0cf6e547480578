package policy

import (
	"context"
	"math/rand"
	"testing"

	"github.com/cartridge/evaluator/internal/env"
)

func TestRandomPolicy_Discrete(t *testing.T) {
	space, err := env.NewDiscrete(9, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Failed to create action space: %v", err)
	}

	policy, err := NewRandom(space)
	if err != nil {
		t.Fatalf("Failed to create random policy: %v", err)
	}

	action, err := policy.SelectAction(context.Background(), warmHistory(t, 4), 10)
	if err != nil {
		t.Fatalf("Failed to select action: %v", err)
	}

	if action < 0 || action >= 9 {
		t.Errorf("Action %d out of range [0, 8]", action)
	}
}

func TestRandomPolicy_InvalidActionSpace(t *testing.T) {
	_, err := NewRandom(nil)
	if err == nil {
		t.Error("Expected error for nil action space")
	}
}

func TestRandomPolicy_MultipleSelections(t *testing.T) {
	// Test that multiple selections produce different results (probabilistically)
	space, err := env.NewDiscrete(9, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("Failed to create action space: %v", err)
	}

	policy, err := NewRandom(space)
	if err != nil {
		t.Fatalf("Failed to create random policy: %v", err)
	}

	buf := warmHistory(t, 4)
	actionSet := make(map[int]bool)

	// Generate 100 actions, should see some variety
	for i := 0; i < 100; i++ {
		action, err := policy.SelectAction(context.Background(), buf, i)
		if err != nil {
			t.Fatalf("Failed to select action: %v", err)
		}
		actionSet[action] = true
	}

	if len(actionSet) < 2 {
		t.Errorf("Expected multiple different actions, got only %d unique actions", len(actionSet))
	}
}
