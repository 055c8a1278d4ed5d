package validators

import "go.mongodb.org/mongo-driver/bson"

var AccommodationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"type", "location", "size", "daily_rate", "availability", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":      bson.M{"bsonType": "objectId"},
			"type":     bson.M{"enum": []string{"HOUSE", "APARTMENT", "CONDO", "VACATION_HOME"}},
			"location": bson.M{"bsonType": "string", "minLength": 2, "maxLength": 200},
			"size":     bson.M{"bsonType": "string", "minLength": 1, "maxLength": 50},
			"amenities": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items":    bson.M{"bsonType": "string"},
			},
			"daily_rate":      bson.M{"bsonType": "long", "minimum": 1},
			"availability":    bson.M{"bsonType": "int", "minimum": 0, "maximum": 10000},
			"created_at":      bson.M{"bsonType": "date"},
			"reservation_seq": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
		},
	},
}
