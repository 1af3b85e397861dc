package assist

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cloudflow/cloudflow/internal/drive"
	"github.com/cloudflow/cloudflow/internal/logging"
	"github.com/cloudflow/cloudflow/pkg/models"
)

// Executor carries out structured assistant actions against the drive.
// Names are resolved case-insensitively among non-trashed entities,
// preferring the current folder; names that resolve to nothing are
// skipped and reported back, never guessed.
type Executor struct {
	drive  *drive.Drive
	client *Client
}

// NewExecutor wires the sidecar to the drive engine.
func NewExecutor(d *drive.Drive, client *Client) *Executor {
	return &Executor{drive: d, client: client}
}

// CommandResult reports what a natural-language command did.
type CommandResult struct {
	Action     string
	Message    string
	Affected   []string
	Unresolved []string
}

// Execute interprets a natural-language command through the sidecar and
// applies the resulting action.
func (e *Executor) Execute(ctx context.Context, command string, currentFolderID *string) (CommandResult, error) {
	if e.client == nil {
		return CommandResult{}, ErrUnavailable
	}

	snap := e.drive.Snapshot()
	action, err := e.client.Interpret(ctx, command, folderListing(snap, currentFolderID))
	if err != nil {
		return CommandResult{}, fmt.Errorf("interpret command: %w", err)
	}

	logging.Info("assistant action",
		zap.String("action", action.Action),
		zap.Int("names", len(action.Names)))

	switch action.Action {
	case "selectFiles":
		return e.selectFiles(snap, action, currentFolderID)
	case "createFolder":
		return e.createFolder(ctx, action, currentFolderID)
	case "renameFile":
		return e.renameFile(ctx, snap, action, currentFolderID)
	case "moveFiles":
		return e.moveFiles(ctx, snap, action, currentFolderID)
	case "deleteFiles":
		return e.deleteFiles(ctx, snap, action, currentFolderID)
	case "", "none":
		return CommandResult{Action: "none", Message: action.Message}, nil
	default:
		return CommandResult{}, fmt.Errorf("unknown assistant action %q", action.Action)
	}
}

func (e *Executor) selectFiles(snap drive.Snapshot, action Action, folderID *string) (CommandResult, error) {
	ids, unresolved := resolveNames(snap, action.Names, folderID)
	e.drive.Selection().Set(ids)
	return CommandResult{
		Action:     "selectFiles",
		Message:    fmt.Sprintf("Selected %d item(s)", len(ids)),
		Affected:   ids,
		Unresolved: unresolved,
	}, nil
}

func (e *Executor) createFolder(ctx context.Context, action Action, folderID *string) (CommandResult, error) {
	name := action.NewName
	if name == "" && len(action.Names) > 0 {
		name = action.Names[0]
	}
	created, err := e.drive.Create(ctx, models.KindFolder, name, folderID)
	if err != nil {
		return CommandResult{}, err
	}
	return CommandResult{
		Action:   "createFolder",
		Message:  fmt.Sprintf("Created folder %q", created.Name),
		Affected: []string{created.ID},
	}, nil
}

func (e *Executor) renameFile(ctx context.Context, snap drive.Snapshot, action Action, folderID *string) (CommandResult, error) {
	if len(action.Names) == 0 || action.NewName == "" {
		return CommandResult{}, fmt.Errorf("rename needs a target and a new name")
	}
	ids, unresolved := resolveNames(snap, action.Names[:1], folderID)
	if len(ids) == 0 {
		return CommandResult{Action: "renameFile", Message: "Nothing matched", Unresolved: unresolved}, nil
	}
	if err := e.drive.Rename(ctx, ids[0], action.NewName); err != nil {
		return CommandResult{}, err
	}
	return CommandResult{
		Action:     "renameFile",
		Message:    fmt.Sprintf("Renamed to %q", action.NewName),
		Affected:   ids,
		Unresolved: unresolved,
	}, nil
}

func (e *Executor) moveFiles(ctx context.Context, snap drive.Snapshot, action Action, folderID *string) (CommandResult, error) {
	target := findFolderByName(snap, action.TargetDir)
	if target == nil {
		return CommandResult{}, fmt.Errorf("no folder named %q", action.TargetDir)
	}
	ids, unresolved := resolveNames(snap, action.Names, folderID)
	if len(ids) == 0 {
		return CommandResult{Action: "moveFiles", Message: "Nothing matched", Unresolved: unresolved}, nil
	}
	if err := e.drive.Move(ctx, ids, &target.ID); err != nil {
		return CommandResult{}, err
	}
	return CommandResult{
		Action:     "moveFiles",
		Message:    fmt.Sprintf("Moved %d item(s) to %q", len(ids), target.Name),
		Affected:   ids,
		Unresolved: unresolved,
	}, nil
}

func (e *Executor) deleteFiles(ctx context.Context, snap drive.Snapshot, action Action, folderID *string) (CommandResult, error) {
	ids, unresolved := resolveNames(snap, action.Names, folderID)
	if len(ids) == 0 {
		return CommandResult{Action: "deleteFiles", Message: "Nothing matched", Unresolved: unresolved}, nil
	}
	// Deleting through the assistant only ever trashes.
	e.drive.Trash(ctx, ids)
	return CommandResult{
		Action:     "deleteFiles",
		Message:    fmt.Sprintf("Moved %d item(s) to trash", len(ids)),
		Affected:   ids,
		Unresolved: unresolved,
	}, nil
}

// resolveNames maps names to entity IDs. The current folder's children
// win over entities elsewhere; trashed entities never match.
func resolveNames(snap drive.Snapshot, names []string, folderID *string) (ids []string, unresolved []string) {
	for _, name := range names {
		if e := findByName(snap, name, folderID); e != nil {
			ids = append(ids, e.ID)
		} else {
			unresolved = append(unresolved, name)
		}
	}
	return ids, unresolved
}

func findByName(snap drive.Snapshot, name string, folderID *string) *models.Entity {
	var global *models.Entity
	for i := range snap {
		e := &snap[i]
		if e.IsTrashed() || !strings.EqualFold(e.Name, name) {
			continue
		}
		if sameParentID(e.ParentID, folderID) {
			return e
		}
		if global == nil {
			global = e
		}
	}
	return global
}

func findFolderByName(snap drive.Snapshot, name string) *models.Entity {
	for i := range snap {
		e := &snap[i]
		if e.IsFolder() && !e.IsTrashed() && strings.EqualFold(e.Name, name) {
			return e
		}
	}
	return nil
}

func folderListing(snap drive.Snapshot, folderID *string) []string {
	var names []string
	for i := range snap {
		if !snap[i].IsTrashed() && sameParentID(snap[i].ParentID, folderID) {
			names = append(names, snap[i].Name)
		}
	}
	return names
}

func sameParentID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
