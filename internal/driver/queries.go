package driver

// EntityAttributesQuery returns every entity of one labeled graph with its
// property map. The label selects KG1 or KG2; `id` is the alignment ID
// assigned when the graph was ingested.
const EntityAttributesQuery = `
	MATCH (n:%s)
	RETURN n.id AS id, properties(n) AS props
`
