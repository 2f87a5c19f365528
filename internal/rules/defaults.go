package rules

const returnZero = "00207047" // movs r0, #0; bx lr

// Defaults returns a fresh copy of the built-in catalog.
func Defaults() *Catalog {
	c := NewCatalog()

	// Unlock fastboot by making the oplusreserve unlock-bit check return 0.
	c.Set("fastboot", "2de9f04fadf5ac5d", returnZero)
	c.Set("fastboot", "f0b5adf5925d", returnZero)

	// Hide the warning shown after an mtkclient unlock: the vbmeta state
	// check returns 0.
	c.Set("dm_verity", "30b583b002ab0022", returnZero)

	// Hide the orange state warning: the LCS state check returns 0.
	c.Set("orange_state", "08b50a4b7b441b681b68022b", returnZero)
	c.Set("orange_state", "08b50e4b7b441b681b68022b", returnZero)

	// Return early from the function printing the verification warning.
	c.Set("red_state", "f0b5002489b0", returnZero)

	return c
}
