package content

// ReconcilePolicy decides what happens when an incoming item's dedup key
// already exists in the store.
type ReconcilePolicy int

const (
	// SkipIfExists leaves the stored row untouched; the incoming item counts
	// as skipped. Used for human-reviewed content where a re-sync must not
	// clobber editorial changes.
	SkipIfExists ReconcilePolicy = iota
	// UpsertOnConflict overwrites mutable fields in place. Used for content
	// whose upstream values legitimately change, such as release dates.
	UpsertOnConflict
)

type DedupField int

const (
	DedupBySlug DedupField = iota
	DedupBySourceURL
)

// TypePolicy is the declared, auditable per-content-type configuration. The
// reconcile policy is a property of the type, not a runtime choice per call.
type TypePolicy struct {
	Reconcile   ReconcilePolicy
	DedupField  DedupField
	AutoPublish bool
}

var policies = map[ContentType]TypePolicy{
	TypeNews:    {Reconcile: SkipIfExists, DedupField: DedupBySourceURL},
	TypeReview:  {Reconcile: SkipIfExists, DedupField: DedupBySlug},
	TypeVideo:   {Reconcile: SkipIfExists, DedupField: DedupBySlug},
	TypeGallery: {Reconcile: SkipIfExists, DedupField: DedupBySlug},
	TypeRelease: {Reconcile: UpsertOnConflict, DedupField: DedupBySlug, AutoPublish: true},
}

func PolicyFor(t ContentType) TypePolicy {
	if p, ok := policies[t]; ok {
		return p
	}
	return TypePolicy{Reconcile: SkipIfExists, DedupField: DedupBySlug}
}

// ConfigureAutoPublish applies the deployment's draft-gate flags.
func ConfigureAutoPublish(news, releases, videos bool) {
	setAutoPublish(TypeNews, news)
	setAutoPublish(TypeRelease, releases)
	setAutoPublish(TypeVideo, videos)
}

func setAutoPublish(t ContentType, v bool) {
	p := policies[t]
	p.AutoPublish = v
	policies[t] = p
}

// InitialStatus returns the workflow status a freshly synced item of the
// given type lands in.
func InitialStatus(t ContentType) string {
	if PolicyFor(t).AutoPublish {
		return StatusPublished
	}
	return StatusDraft
}
