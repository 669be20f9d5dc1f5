package game_test

import (
	"testing"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/Garsondee/Tank-Arena/internal/game"
	"github.com/Garsondee/Tank-Arena/internal/game/mocks"
)

func snapshotAt(pos game.Vec2) *game.WorldSnapshot {
	return &game.WorldSnapshot{
		Bounds: game.Bounds{Width: 1000, Height: 1000},
		Tanks: []game.TankState{
			{ID: game.Tank1, Pose: game.Pose{Pos: pos}, Alive: true, Health: 3, Radius: 10},
		},
	}
}

// Intents leave the executor in queue order, one action per tick.
func TestExecutor_EmitsIntentsInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockIntentSink(ctrl)
	gomock.InOrder(
		sink.EXPECT().Emit(game.Intent{Kind: game.IntentSetHeading, Tank: game.Tank1, Amount: 3}),
		sink.EXPECT().Emit(game.Intent{Kind: game.IntentFireProjectile, Tank: game.Tank1}),
		sink.EXPECT().Emit(game.Intent{Kind: game.IntentTranslate, Tank: game.Tank1, Amount: -5}),
	)

	e := game.NewExecutor(game.Tank1, game.ExecutorConfig{MoveSpeed: 6, TurnRate: 3, BlockedAfterTicks: 15}, nil, zerolog.Nop())
	actions, err := game.Parse("turn left 3 then fire then move back 5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e.Submit(actions)

	snap := snapshotAt(game.Vec2{X: 500, Y: 500})
	for i := 0; i < 4; i++ {
		e.Tick(snap, sink)
	}
	if e.State() != game.ExecIdle {
		t.Fatalf("want idle after three actions, got %s", e.State())
	}
}

// An idle executor never touches the sink.
func TestExecutor_IdleEmitsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockIntentSink(ctrl)
	sink.EXPECT().Emit(gomock.Any()).Times(0)

	e := game.NewExecutor(game.Tank1, game.DefaultExecutorConfig(), nil, zerolog.Nop())
	res := e.Tick(snapshotAt(game.Vec2{X: 500, Y: 500}), sink)
	if res.Event != game.EventNoQueue {
		t.Fatalf("want no_queue, got %s", res.Event)
	}
}
