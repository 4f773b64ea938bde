package provider

// TrustClassifier flags advertisers as trusted
type TrustClassifier interface {
	IsTrusted(
		venue string,
		advertiserID string,
		advertiserName string,
		tradeCount int,
		completionRate float64,
	) bool
}
