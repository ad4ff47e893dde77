package mission

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var errBlobNotFound = errors.New("json blob not found under any candidate path")

type (
	RenamedMission struct {
		MissionUID string `json:"mission_uid"`
		From       string `json:"from"`
		To         string `json:"to"`
	}

	// NormalizeReport sums up a NormalizeJSONPaths run.
	NormalizeReport struct {
		Processed int              `json:"processed"`
		Renamed   []RenamedMission `json:"renamed"`
		Skipped   []string         `json:"skipped"`  // mission UIDs already at their canonical path
		Warnings  []string         `json:"warnings"` // one per mission that could not be normalized
	}
)

// NormalizeJSONPaths moves every mission JSON blob of the missions bucket to its canonical
// `<dir>/<mission_uid>.json` path and records it as the mission's object_path.
// Missions are processed one after the other; one mission failing only adds a warning.
// Nothing is rolled back, running it again picks up where a failed run stopped.
func (svc *service) NormalizeJSONPaths(ctx context.Context) (NormalizeReport, error) {
	report := NormalizeReport{
		Renamed:  []RenamedMission{},
		Skipped:  []string{},
		Warnings: []string{},
	}

	missions, err := svc.repo.QueryMissions(ctx, &QueryFilter{AllOrgs: true}, nil)
	if err != nil {
		return report, errors.Wrap(err, "querying missions")
	}

	for _, m := range missions {
		if m.MissionUID == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("mission %s: no mission_uid", m.ID))
			continue
		}
		report.Processed++

		renamed, err := svc.normalizeOne(ctx, m)
		switch {
		case err != nil:
			report.Warnings = append(report.Warnings, fmt.Sprintf("mission %s: %v", m.MissionUID, err))
		case renamed != nil:
			report.Renamed = append(report.Renamed, *renamed)
		default:
			report.Skipped = append(report.Skipped, m.MissionUID)
		}
	}
	return report, nil
}

// normalizeOne returns nil, nil when the mission's blob is already canonical.
func (svc *service) normalizeOne(ctx context.Context, m Mission) (*RenamedMission, error) {
	bucket := svc.opts.MissionsBucket

	var found string
	var data []byte
	for _, p := range candidatePaths(m) {
		// a failed probe only means "not there"
		if b, err := svc.objects.Download(ctx, bucket, p); err == nil {
			found, data = p, b
			break
		}
	}
	if found == "" {
		return nil, errBlobNotFound
	}

	canonical := canonicalPath(m, found)
	if found == canonical {
		if m.ObjectPath.String != canonical {
			if err := svc.repo.UpdateObjectPath(ctx, m.ID, canonical); err != nil {
				return nil, errors.Wrap(err, "updating object_path")
			}
		}
		return nil, nil
	}

	if err := svc.objects.Upload(ctx, bucket, canonical, data, "application/json"); err != nil {
		return nil, errors.Wrapf(err, "copying %s to %s", found, canonical)
	}
	if err := svc.objects.Delete(ctx, bucket, found); err != nil {
		return nil, errors.Wrapf(err, "deleting %s", found)
	}
	if err := svc.repo.UpdateObjectPath(ctx, m.ID, canonical); err != nil {
		return nil, errors.Wrap(err, "updating object_path")
	}
	return &RenamedMission{MissionUID: m.MissionUID, From: found, To: canonical}, nil
}

// candidatePaths lists where a mission's blob may have been stored over time, most likely first.
func candidatePaths(m Mission) []string {
	order := strconv.Itoa(m.OrderNo)
	paths := make([]string, 0, 6)
	seen := make(map[string]bool, 6)
	add := func(p string) {
		p = strings.TrimLeft(p, "/")
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	add(m.ObjectPath.String)
	if recorded := recordedPath(m.ObjectPath); recorded != "" {
		// moved by a run that failed before recording it
		add(canonicalPath(m, recorded))
	}
	add(order + ".json")
	add("missions/" + order + ".json")
	add(m.MissionUID + ".json")
	add("missions/" + m.MissionUID + ".json")
	return paths
}

// canonicalPath keeps the directory of the recorded object_path, or else the one the blob was found in.
func canonicalPath(m Mission, foundAt string) string {
	dir := path.Dir(foundAt)
	if recorded := recordedPath(m.ObjectPath); recorded != "" {
		dir = path.Dir(recorded)
	}
	if dir == "." {
		dir = ""
	}
	return path.Join(dir, m.MissionUID+".json")
}

func recordedPath(p null.String) string {
	if !p.Valid {
		return ""
	}
	return strings.TrimLeft(p.String, "/")
}
