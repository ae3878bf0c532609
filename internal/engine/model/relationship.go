package model

// Relationship tags the nature of a fact. The set is open: callers may record
// and query any tag, the constants below are the ones the extractor produces.
type Relationship string

const (
	DefinesClass        Relationship = "defines-class"
	DefinesClassAlias   Relationship = "defines-class-alias"
	DefinesFunction     Relationship = "defines-function"
	DefinesFunctionType Relationship = "defines-function-type"
	DefinesVariable     Relationship = "defines-variable"

	IsExtendedBy    Relationship = "is-extended-by"
	IsImplementedBy Relationship = "is-implemented-by"
	IsMixedInBy     Relationship = "is-mixed-in-by"

	IsInvokedBy                      Relationship = "is-invoked-by"
	IsInvokedByQualified             Relationship = "is-invoked-by-qualified"
	IsInvokedByUnqualified           Relationship = "is-invoked-by-unqualified"
	IsInvokedByQualifiedResolved     Relationship = "is-invoked-by-qualified-resolved"
	IsInvokedByQualifiedUnresolved   Relationship = "is-invoked-by-qualified-unresolved"
	IsInvokedByUnqualifiedUnresolved Relationship = "is-invoked-by-unqualified-unresolved"

	IsReferencedBy                      Relationship = "is-referenced-by"
	IsReferencedByQualified             Relationship = "is-referenced-by-qualified"
	IsReferencedByUnqualified           Relationship = "is-referenced-by-unqualified"
	IsReferencedByQualifiedResolved     Relationship = "is-referenced-by-qualified-resolved"
	IsReferencedByQualifiedUnresolved   Relationship = "is-referenced-by-qualified-unresolved"
	IsReferencedByUnqualifiedUnresolved Relationship = "is-referenced-by-unqualified-unresolved"

	IsReadBy        Relationship = "is-read-by"
	IsWrittenBy     Relationship = "is-written-by"
	IsReadWrittenBy Relationship = "is-read-written-by"

	IsDefinedBy Relationship = "is-defined-by"
)

// KnownRelationships lists the predefined tags in a stable order.
var KnownRelationships = []Relationship{
	DefinesClass, DefinesClassAlias, DefinesFunction, DefinesFunctionType, DefinesVariable,
	IsExtendedBy, IsImplementedBy, IsMixedInBy,
	IsInvokedBy, IsInvokedByQualified, IsInvokedByUnqualified,
	IsInvokedByQualifiedResolved, IsInvokedByQualifiedUnresolved, IsInvokedByUnqualifiedUnresolved,
	IsReferencedBy, IsReferencedByQualified, IsReferencedByUnqualified,
	IsReferencedByQualifiedResolved, IsReferencedByQualifiedUnresolved, IsReferencedByUnqualifiedUnresolved,
	IsReadBy, IsWrittenBy, IsReadWrittenBy,
	IsDefinedBy,
}

func (r Relationship) String() string {
	return string(r)
}
