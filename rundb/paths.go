package rundb

// DefaultProject is substituted whenever an operation is invoked without an
// explicit project.
const DefaultProject = "default"

// Resource kinds addressed as <kind>/<project>/<identifier>.
const (
	kindLog      = "log"
	kindRun      = "run"
	kindArtifact = "artifact"
	kindFunction = "func"
)

// orDefaultProject resolves the empty project at path-construction time, not
// earlier, so callers may omit it everywhere.
func orDefaultProject(project string) string {
	if project == "" {
		return DefaultProject
	}
	return project
}

// pathFor builds the resource path for one addressable object.
func pathFor(kind, project, identifier string) string {
	return kind + "/" + orDefaultProject(project) + "/" + identifier
}
