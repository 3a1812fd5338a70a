package content

import (
	"path"

	"github.com/google/uuid"

	"github.com/masmgr/content-gateway/internal/codec"
)

const (
	projectsDir    = "projects"
	projectFile    = "project.json"
	collectionFile = "collection.json"
)

func projectDir(projectID string) string {
	return path.Join(projectsDir, projectID)
}

func collectionsDir(projectID string) string {
	return path.Join(projectDir(projectID), "collections")
}

func collectionDir(projectID, collectionID string) string {
	return path.Join(collectionsDir(projectID), collectionID)
}

func entriesDir(projectID, collectionID string) string {
	return path.Join(collectionDir(projectID, collectionID), "entries")
}

func assetsDir(projectID string) string {
	return path.Join(projectDir(projectID), "assets")
}

func payloadDir(projectID string) string {
	return path.Join(projectDir(projectID), "lfs")
}

// ValidID reports whether id is a canonical UUID. Only such identifiers are
// ever joined into repository paths.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func checkID(kind, id string) error {
	if !ValidID(id) {
		return invalidf("%s id %q is not a valid identifier", kind, id)
	}
	return nil
}

// ObjectPattern returns the path glob covering an object's files inside a
// project. An empty objectType scopes to the whole project.
func ObjectPattern(projectID string, objectType codec.ObjectType, objectID string) (string, error) {
	if err := checkID("project", projectID); err != nil {
		return "", err
	}
	if objectType == "" || objectType == codec.ObjectProject {
		return projectDir(projectID) + "/**", nil
	}
	if err := checkID(string(objectType), objectID); err != nil {
		return "", err
	}

	switch objectType {
	case codec.ObjectCollection:
		return collectionDir(projectID, objectID) + "/**", nil
	case codec.ObjectEntry:
		return path.Join(collectionsDir(projectID), "*", "entries", objectID+".json"), nil
	case codec.ObjectAsset:
		return projectDir(projectID) + "/{assets,lfs}/" + objectID + ".*", nil
	default:
		return "", invalidf("unknown object type %q", objectType)
	}
}
