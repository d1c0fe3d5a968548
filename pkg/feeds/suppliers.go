package feeds

// Built-in supplier schemas. These mirror the shipped schema YAML files and
// serve as defaults when no schema directory is configured.

// AlphaBroder returns the schema for alphabroder's caret-delimited product
// and price files plus its comma-delimited inventory file.
func AlphaBroder() *Schema {
	return &Schema{
		Supplier:           "alphabroder",
		Delimiter:          "^",
		ProductFile:        "AllDBInfoALP_Prod.txt",
		PriceFile:          "AllDBInfoALP_PRC_R034.txt",
		InventoryFile:      "inventory-v8-alp.txt",
		InventoryDelimiter: ",",
		Fields: Fields{
			Identifier:       "Item Number",
			Style:            "Style",
			ColorName:        "Color Name",
			Size:             "Size",
			Vendor:           "Mill Name",
			Category:         "Category",
			ShortDescription: "Short Description",
			FullDescription:  "Full Feature Description",
			FrontImage:       "Front of Image Name",
		},
		Prices: PriceFields{
			Identifier: "Item Number",
			Price:      "Piece",
		},
		Quantity: QuantityFields{
			Identifier: "Item Number",
			Available:  "Total Inventory",
			Deductions: []string{"Drop Ship Inventory"},
		},
		ImageURL: "https://www.alphabroder.com/images/alp/prodDetail/{}",
		Categories: []string{
			"Polos", "Outerwear", "Fleece", "Sweatshirts",
			"Woven Shirts", "T-Shirts", "Infants | Toddlers",
		},
		VendorFixups: map[string]string{
			"Bella + Canvas": "Bella+Canvas",
		},
	}
}

// SanMar returns the schema for sanmar's pipe-delimited export.
func SanMar() *Schema {
	return &Schema{
		Supplier:      "sanmar",
		Delimiter:     "|",
		ProductFile:   "SanMar_EPDD.txt",
		PriceFile:     "SanMar_EPDD.txt",
		InventoryFile: "sanmar_sdl.txt",
		Fields: Fields{
			Identifier:       "UNIQUE_KEY",
			Style:            "STYLE#",
			ColorName:        "COLOR_NAME",
			Size:             "SIZE",
			Vendor:           "MILL",
			Category:         "CATEGORY_NAME",
			ShortDescription: "PRODUCT_TITLE",
			FullDescription:  "PRODUCT_DESCRIPTION",
			FrontImage:       "FRONT_MODEL_IMAGE_URL",
		},
		Prices: PriceFields{
			Identifier: "UNIQUE_KEY",
			Price:      "PIECE_PRICE",
		},
		Quantity: QuantityFields{
			Identifier: "UNIQUE_KEY",
			Available:  "QTY",
		},
	}
}

// Builtin returns the built-in schema for a supplier name, or nil.
func Builtin(supplier string) *Schema {
	switch supplier {
	case "alphabroder":
		return AlphaBroder()
	case "sanmar":
		return SanMar()
	default:
		return nil
	}
}
