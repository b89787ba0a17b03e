package domain

type CtxKey string

const (
	KeyViewerID   CtxKey = "ViewerID"
	KeyViewerRole CtxKey = "ViewerRole"
	KeyPlanTier   CtxKey = "PlanTier"
)
