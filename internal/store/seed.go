package store

import (
	"time"

	"github.com/cloudflow/cloudflow/pkg/models"
)

func sp(s string) *string { return &s }

// Seed returns the starter tree a fresh installation boots with. Stores
// fall back to it when they have nothing persisted yet.
func Seed() []models.Entity {
	now := time.Now()
	opened := now.Add(-17 * time.Minute)
	return []models.Entity{
		{ID: "1", Name: "Documents", Kind: models.KindFolder, LastModified: now, IsFavorite: true},
		{ID: "2", Name: "Photos", Kind: models.KindFolder, LastModified: now},
		{ID: "3", Name: "Music", Kind: models.KindFolder, LastModified: now},
		{ID: "4", Name: "Archive", Kind: models.KindFolder, ParentID: sp("1"), LastModified: now},
		{
			ID: "5", Name: "Report-2024-Q1.txt", Kind: models.KindFile, ParentID: sp("1"),
			Size: 1024, LastModified: now.Add(-33 * time.Minute), LastOpenedAt: &opened,
			IsFavorite: true,
			Versions: []models.Version{
				{Timestamp: now, Content: "This is the first quarterly report for 2024."},
			},
		},
		{
			ID: "6", Name: "Project-Alpha-Proposal.txt", Kind: models.KindFile, ParentID: sp("1"),
			Size: 2048, LastModified: now.Add(-83 * time.Minute),
			Versions: []models.Version{
				{Timestamp: now, Content: "Proposal document for Project Alpha."},
			},
		},
		{
			ID: "7", Name: "beach-sunset.jpg", Kind: models.KindFile, ParentID: sp("2"),
			Size: 512000, LastModified: now.Add(-133 * time.Minute),
			RemoteURL: "https://images.unsplash.com/photo-1507525428034-b723a9ce6890?q=80&w=2070&auto=format&fit=crop",
		},
		{
			ID: "8", Name: "mountain-hike.png", Kind: models.KindFile, ParentID: sp("2"),
			Size: 812000, LastModified: now.Add(-150 * time.Minute),
			RemoteURL: "https://images.unsplash.com/photo-1551632811-561732d1e306?q=80&w=2070&auto=format&fit=crop",
		},
		{
			ID: "9", Name: "lofi-beats.mp3", Kind: models.KindFile, ParentID: sp("3"),
			Size: 4096000, LastModified: now.Add(-50 * time.Minute),
		},
		{
			ID: "10", Name: "README.md", Kind: models.KindFile,
			Size: 512, LastModified: now.Add(-167 * time.Minute),
			Versions: []models.Version{
				{Timestamp: now, Content: "# Welcome to CloudFlow!"},
			},
		},
	}
}
