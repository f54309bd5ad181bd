package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"aslquant/internal/models"
)

// DiscoverRuns walks a dataset tree and returns one AcquisitionRecord per
// perfusion acquisition, sorted lexically by subject, session and run.
// The expected layout is sub-*/[ses-*/]perf/*_asl.nii[.gz]; subjects
// without a perf directory simply contribute no runs.
func DiscoverRuns(root string) ([]models.AcquisitionRecord, error) {
	subjects, err := sortedDirs(root, "sub-")
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset root: %w", err)
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("no subject directories under %s", root)
	}

	var records []models.AcquisitionRecord
	for _, subject := range subjects {
		subjectDir := filepath.Join(root, subject)

		sessions, err := sortedDirs(subjectDir, "ses-")
		if err != nil {
			return nil, err
		}
		if len(sessions) == 0 {
			recs, err := discoverIn(subjectDir, subject, "")
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
			continue
		}
		for _, session := range sessions {
			recs, err := discoverIn(filepath.Join(subjectDir, session), subject, session)
			if err != nil {
				return nil, err
			}
			records = append(records, recs...)
		}
	}
	return records, nil
}

// discoverIn finds acquisitions below one subject or session directory.
func discoverIn(dir, subject, session string) ([]models.AcquisitionRecord, error) {
	perfDir := filepath.Join(dir, "perf")
	entries, err := os.ReadDir(perfDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	structural := findStructural(dir)

	var records []models.AcquisitionRecord
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		base, ok := stripVolumeExt(e.Name())
		if !ok || !strings.HasSuffix(base, "_asl") {
			continue
		}
		stem := strings.TrimSuffix(base, "_asl")

		rec := models.AcquisitionRecord{
			Subject:        subject,
			Session:        session,
			Run:            entityValue(base, "run-"),
			VolumePath:     filepath.Join(perfDir, e.Name()),
			SidecarPath:    existing(filepath.Join(perfDir, base+".json")),
			ContextPath:    existing(filepath.Join(perfDir, base+"context.tsv")),
			StructuralPath: structural,
		}

		if ref := findVolume(perfDir, stem+"_m0scan"); ref != "" {
			rec.ReferencePath = ref
			rec.ReferenceSidecarPath = existing(filepath.Join(perfDir, stem+"_m0scan.json"))
		}

		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].VolumePath < records[j].VolumePath
	})
	return records, nil
}

// findStructural returns the first structural (T1w) volume under the
// anat directory next to perf, or empty when none exists.
func findStructural(dir string) string {
	anatDir := filepath.Join(dir, "anat")
	entries, err := os.ReadDir(anatDir)
	if err != nil {
		return ""
	}
	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		base, ok := stripVolumeExt(e.Name())
		if ok && strings.HasSuffix(base, "_T1w") {
			candidates = append(candidates, filepath.Join(anatDir, e.Name()))
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return candidates[0]
}

// findVolume returns the path of <dir>/<base>.nii or .nii.gz, preferring
// the uncompressed file.
func findVolume(dir, base string) string {
	for _, ext := range []string{".nii", ".nii.gz"} {
		if p := existing(filepath.Join(dir, base+ext)); p != "" {
			return p
		}
	}
	return ""
}

// stripVolumeExt removes a .nii or .nii.gz extension, reporting whether the
// name had one.
func stripVolumeExt(name string) (string, bool) {
	if strings.HasSuffix(name, ".nii.gz") {
		return strings.TrimSuffix(name, ".nii.gz"), true
	}
	if strings.HasSuffix(name, ".nii") {
		return strings.TrimSuffix(name, ".nii"), true
	}
	return name, false
}

// entityValue extracts a filename entity such as "run-01" from an
// underscore-delimited acquisition name.
func entityValue(base, prefix string) string {
	for _, token := range strings.Split(base, "_") {
		if strings.HasPrefix(token, prefix) {
			return token
		}
	}
	return ""
}

// sortedDirs lists the subdirectories of dir with the given name prefix.
func sortedDirs(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// existing returns path when the file exists, empty otherwise.
func existing(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
