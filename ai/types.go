package ai

// EntityTypes defines the valid categories for extracted entities.
// These types are used by triple extractors to classify the endpoints of
// candidate relations, and by the graph normalizer to gate fuzzy merges.
var EntityTypes = []string{
	"agency",
	"application",
	"concept",
	"data_product",
	"ground_station",
	"instrument",
	"location",
	"measurement",
	"mission",
	"orbit",
	"organization",
	"phenomenon",
	"satellite",
	"sensor",
	"service",
	"technology",
}
