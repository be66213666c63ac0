package meddb

// DefaultEntries returns the built-in medication reference set: the DCI
// names most dispensed in Senegalese primary care plus common brand names.
// Used when no reference file is configured; the medload tool produces a
// fuller set from pharmacy exports.
func DefaultEntries() []MedicationEntry {
	return []MedicationEntry{
		// Analgesics / anti-inflammatories
		{Name: "paracétamol", Category: "antalgique", Aliases: []string{"acetaminophen"}},
		{Name: "ibuprofène", Category: "anti-inflammatoire", Aliases: []string{"ibuprofen"}},
		{Name: "aspirine", Category: "antalgique", Aliases: []string{"aspirin", "acide acétylsalicylique"}},
		{Name: "codéine", Category: "antalgique", Aliases: []string{"codeine"}},
		{Name: "tramadol", Category: "antalgique"},
		{Name: "morphine", Category: "antalgique"},

		// Antibiotics
		{Name: "amoxicilline", Category: "antibiotique", Aliases: []string{"amoxicillin"}},
		{Name: "azithromycine", Category: "antibiotique", Aliases: []string{"azithromycin"}},
		{Name: "ciprofloxacine", Category: "antibiotique", Aliases: []string{"ciprofloxacin"}},
		{Name: "métronidazole", Category: "antibiotique", Aliases: []string{"metronidazole"}},
		{Name: "doxycycline", Category: "antibiotique"},
		{Name: "ceftriaxone", Category: "antibiotique"},
		{Name: "pénicilline", Category: "antibiotique", Aliases: []string{"penicillin"}},

		// Antimalarials
		{Name: "artéméther", Category: "antipaludéen", Aliases: []string{"artemether"}},
		{Name: "luméfantrine", Category: "antipaludéen", Aliases: []string{"lumefantrine"}},
		{Name: "chloroquine", Category: "antipaludéen"},
		{Name: "quinine", Category: "antipaludéen"},
		{Name: "méfloquine", Category: "antipaludéen", Aliases: []string{"mefloquine"}},
		{Name: "atovaquone", Category: "antipaludéen"},
		{Name: "proguanil", Category: "antipaludéen"},

		// Antidiabetics
		{Name: "metformine", Category: "antidiabétique", Aliases: []string{"metformin"}},
		{Name: "glibenclamide", Category: "antidiabétique"},
		{Name: "insuline", Category: "antidiabétique", Aliases: []string{"insulin"}},

		// Cardiovascular
		{Name: "amlodipine", Category: "cardiovasculaire"},
		{Name: "aténolol", Category: "cardiovasculaire", Aliases: []string{"atenolol"}},
		{Name: "lisinopril", Category: "cardiovasculaire"},
		{Name: "furosémide", Category: "cardiovasculaire", Aliases: []string{"furosemide"}},
		{Name: "hydrochlorothiazide", Category: "cardiovasculaire"},

		// Antihistamines
		{Name: "cétirizine", Category: "antihistaminique", Aliases: []string{"cetirizine"}},
		{Name: "loratadine", Category: "antihistaminique"},
		{Name: "chlorphéniramine", Category: "antihistaminique", Aliases: []string{"chlorpheniramine"}},

		// Other
		{Name: "oméprazole", Category: "gastro", Aliases: []string{"omeprazole"}},
		{Name: "ranitidine", Category: "gastro"},
		{Name: "salbutamol", Category: "respiratoire"},
		{Name: "prednisolone", Category: "corticoïde"},
		{Name: "diazépam", Category: "anxiolytique", Aliases: []string{"diazepam"}},

		// Brand names
		{Name: "Doliprane", Category: "antalgique", DCI: "paracétamol"},
		{Name: "Efferalgan", Category: "antalgique", DCI: "paracétamol"},
		{Name: "Dafalgan", Category: "antalgique", DCI: "paracétamol"},
		{Name: "Advil", Category: "anti-inflammatoire", DCI: "ibuprofène"},
		{Name: "Nurofen", Category: "anti-inflammatoire", DCI: "ibuprofène"},
		{Name: "Brufen", Category: "anti-inflammatoire", DCI: "ibuprofène"},
		{Name: "Flagyl", Category: "antibiotique", DCI: "métronidazole"},
		{Name: "Amoxil", Category: "antibiotique", DCI: "amoxicilline"},
		{Name: "Coartem", Category: "antipaludéen", DCI: "artéméther"},
		{Name: "Riamet", Category: "antipaludéen", DCI: "artéméther"},
		{Name: "Malarone", Category: "antipaludéen", DCI: "atovaquone"},
		{Name: "Glucophage", Category: "antidiabétique", DCI: "metformine"},
		{Name: "Ventolin", Category: "respiratoire", DCI: "salbutamol"},
	}
}
