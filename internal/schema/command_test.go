package schema

import (
	"encoding/json"
	"testing"
)

func TestCommandValidate(t *testing.T) {
	cases := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"create_task ok", NewCreateTask("patrol the north ridge", ""), false},
		{"create_task with template", NewCreateTask("patrol", "patrol_template"), false},
		{"create_task empty instruction", CreateTask{Meta: NewMeta(SourceGUI)}, true},
		{"update_task ok", NewUpdateTask("task_1", "pause"), false},
		{"update_task missing id", UpdateTask{Command: "pause", Meta: NewMeta(SourceGUI)}, true},
		{"update_task missing command", UpdateTask{TaskID: "task_1", Meta: NewMeta(SourceGUI)}, true},
		{"replan ok", NewReplan(), false},
		{"replan missing meta", Replan{}, true},
		{"start_simulation ok", NewStartSimulation(), false},
		{"user_command ok", NewUserCommand("start"), false},
		{"user_command empty", UserCommand{Meta: NewMeta(SourceGUI)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cmd.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestEncodeDecodeUpdateTask(t *testing.T) {
	src := NewUpdateTask("task_3", "emergency_stop")
	data, err := EncodeCommand(src)
	if err != nil {
		t.Fatal(err)
	}

	var env map[string]any
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env["type"] != "update_task" || env["task_id"] != "task_3" || env["source"] != "gui" {
		t.Fatalf("envelope = %v", env)
	}
	if env["timestamp"] == "" {
		t.Fatal("envelope missing timestamp")
	}

	decoded, err := DecodeCommand(data)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := decoded.(UpdateTask)
	if !ok {
		t.Fatalf("decoded to %T", decoded)
	}
	if got.TaskID != "task_3" || got.Command != "emergency_stop" {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestDecodeUnknownTypeFallsBackToUserCommand(t *testing.T) {
	data := []byte(`{"type":"teleport","instruction":"beam me up","timestamp":"2026-01-01T00:00:00Z","source":"gui"}`)
	cmd, err := DecodeCommand(data)
	if err != nil {
		t.Fatal(err)
	}
	uc, ok := cmd.(UserCommand)
	if !ok {
		t.Fatalf("decoded to %T, want UserCommand", cmd)
	}
	if uc.Kind() != CommandKind("teleport") {
		t.Fatalf("kind = %q, want original tag", uc.Kind())
	}
	if uc.Instruction != "beam me up" {
		t.Fatalf("instruction = %q", uc.Instruction)
	}
}

func TestDecodeIncompleteEnvelopeDefersValidation(t *testing.T) {
	// Decoding succeeds; the handler is the one who rejects.
	data := []byte(`{"type":"update_task","timestamp":"2026-01-01T00:00:00Z","source":"gui"}`)
	cmd, err := DecodeCommand(data)
	if err != nil {
		t.Fatalf("decode of incomplete envelope failed: %v", err)
	}
	if cmd.Validate() == nil {
		t.Fatal("incomplete update_task passed validation")
	}
}

func TestPointWireShape(t *testing.T) {
	data, err := json.Marshal(Trajectory{Points: []Point{{1, 2}, {3, 4}}, Color: "gray"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"points":[[1,2],[3,4]],"color":"gray"}`
	if string(data) != want {
		t.Fatalf("trajectory wire form = %s", data)
	}

	var tr Trajectory
	if err := json.Unmarshal(data, &tr); err != nil {
		t.Fatal(err)
	}
	if tr.Points[1] != (Point{3, 4}) {
		t.Fatalf("round-trip points = %+v", tr.Points)
	}
}
