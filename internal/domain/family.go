package domain

// Family is a report tab that groups one or more check types.
type Family string

const (
	FamilyDB  Family = "db"
	FamilyOS  Family = "os"
	FamilyWAS Family = "was"
)

var familyTypes = map[Family][]string{
	FamilyDB:  {TypeMariaDB, TypePostgreSQL, TypeCubrid},
	FamilyOS:  {TypeOS},
	FamilyWAS: {TypeWAS, TypeTomcat}, // aliases of one logical type
}

// Types lists the check types aggregated under f.
func (f Family) Types() []string {
	return append([]string(nil), familyTypes[f]...)
}

// FamilyOf returns the family a check type belongs to, or "" when unknown.
func FamilyOf(checkType string) Family {
	for f, types := range familyTypes {
		for _, t := range types {
			if t == checkType {
				return f
			}
		}
	}
	return ""
}
