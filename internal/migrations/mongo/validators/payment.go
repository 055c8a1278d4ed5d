package validators

import "go.mongodb.org/mongo-driver/bson"

var PaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"user_id",
			"status",
			"session_id",
			"amount_cents",
			"currency",
			"expires_at",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"user_id": bson.M{
				"bsonType": "string",
			},

			"status": bson.M{
				"enum": []string{"PENDING", "PAID", "EXPIRED", "CANCELED"},
			},

			"session_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"session_url": bson.M{
				"bsonType": "string",
			},

			"amount_cents": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
