package badgegroups

// DefaultGroups returns the groups seeded at install time.
func DefaultGroups() []BadgeGroup {
	product := Defaults()
	product.ShowAfterAddToCart = true

	checkout := Defaults()
	checkout.ShowOnCheckout = true
	checkout.HeaderText = "Secure Payment Methods"
	checkout.Alignment = AlignLeft

	footer := Defaults()
	footer.HeaderText = "Payment Options"
	footer.Alignment = AlignRight

	return []BadgeGroup{
		{ID: GroupProductPage, Name: "Product Page", IsDefault: true, IsActive: true, Settings: product},
		{ID: GroupCheckout, Name: "Checkout", IsDefault: true, IsActive: false, Settings: checkout},
		{ID: GroupFooter, Name: "Footer", IsDefault: true, IsActive: false, Settings: footer},
	}
}
