package cache

var (
	bResponses    = []byte("responses")    // key -> envelope
	bFingerprints = []byte("fingerprints") // target -> hash
	bManifests    = []byte("manifests")    // target -> JSON list of written paths
)
