package search

import (
	"strings"
	"time"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
)

// ProjectDocument is the denormalized search projection of a project. It is
// derived state: always re-buildable from the project row plus its versions,
// so repeated or out-of-order resyncs self-correct.
type ProjectDocument struct {
	ID              uint      `json:"id"`
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	Summary         string    `json:"summary"`
	Type            string    `json:"type"`
	IconURL         string    `json:"icon_url"`
	Downloads       int64     `json:"downloads"`
	RecentDownloads int64     `json:"recent_downloads"`
	Followers       int64     `json:"followers"`
	GameVersions    []string  `json:"game_versions"`
	Loaders         []string  `json:"loaders"`
	DateApproved    time.Time `json:"date_approved"`
}

// BuildDocument projects a project row and its versions into a search
// document. recentDownloads is the recency-weighted rollup supplied by the
// stats layer.
func BuildDocument(p *models.Project, versions []models.Version, iconURL string, recentDownloads int64) ProjectDocument {
	gameVersions := make(map[string]struct{})
	loaders := make(map[string]struct{})
	for _, v := range versions {
		for _, gv := range splitList(v.GameVersions) {
			gameVersions[gv] = struct{}{}
		}
		for _, l := range splitList(v.Loaders) {
			loaders[l] = struct{}{}
		}
	}

	approved := time.Time{}
	if p.DateApproved != nil {
		approved = *p.DateApproved
	}

	return ProjectDocument{
		ID:              p.ID,
		Slug:            p.Slug,
		Name:            p.Name,
		Summary:         p.Summary,
		Type:            p.Type,
		IconURL:         iconURL,
		Downloads:       p.Downloads,
		RecentDownloads: recentDownloads,
		Followers:       p.Followers,
		GameVersions:    keys(gameVersions),
		Loaders:         keys(loaders),
		DateApproved:    approved,
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
