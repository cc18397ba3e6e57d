// Package integrations reports which commerce plugins are installed on the
// storefront host. Group eligibility and trigger availability both depend
// on it.
package integrations

// Plugin names understood by the capability probe.
const (
	WooCommerce = "woocommerce"
	EDD         = "edd"
)

// Capabilities is the response of GET /installed-plugins.
type Capabilities struct {
	WooCommerce bool `json:"woocommerce"`
	EDD         bool `json:"edd"`
}
