package handlers

import (
	"net/http"
	"time"

	"github.com/gststore/storefront-backend/database"
	"github.com/gststore/storefront-backend/models"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetUserProfile retrieves the user's profile
func GetUserProfile(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var user models.User
	err := database.DB.Collection("users").FindOne(
		c.Request().Context(),
		bson.M{"_id": userID},
	).Decode(&user)

	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateUserProfile updates the user's profile information
func UpdateUserProfile(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var updateData struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phoneNumber"`
	}

	if err := c.Bind(&updateData); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	update := bson.M{
		"$set": bson.M{
			"name":        updateData.Name,
			"phoneNumber": updateData.PhoneNumber,
			"updatedAt":   time.Now(),
		},
	}

	_, err := database.DB.Collection("users").UpdateOne(
		c.Request().Context(),
		bson.M{"_id": userID},
		update,
	)

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update profile"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

// AddUserAddress adds or updates an address
func AddUserAddress(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var address models.Address
	if err := c.Bind(&address); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid address data: " + err.Error()})
	}

	if address.ID.IsZero() {
		address.ID = primitive.NewObjectID()
	}

	if address.Type == "" {
		address.Type = "shipping"
	}

	// Remove any existing address with the same ID before re-adding
	_, err := database.DB.Collection("users").UpdateOne(
		c.Request().Context(),
		bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{
				"addresses": bson.M{"_id": address.ID},
			},
		},
	)

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update address: " + err.Error()})
	}

	// If this is set as default, unset others
	if address.IsDefault {
		_, err = database.DB.Collection("users").UpdateOne(
			c.Request().Context(),
			bson.M{"_id": userID},
			bson.M{
				"$set": bson.M{
					"addresses.$[].isDefault": false,
				},
			},
		)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update default status"})
		}
	}

	update := bson.M{
		"$push": bson.M{
			"addresses": address,
		},
		"$set": bson.M{
			"updatedAt": time.Now(),
		},
	}

	result, err := database.DB.Collection("users").UpdateOne(
		c.Request().Context(),
		bson.M{"_id": userID},
		update,
	)

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to add address: " + err.Error()})
	}

	if result.ModifiedCount == 0 {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to add address"})
	}

	return c.JSON(http.StatusOK, address)
}

func GetUserAddresses(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var user models.User
	err := database.DB.Collection("users").FindOne(
		c.Request().Context(),
		bson.M{"_id": userID},
	).Decode(&user)

	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	return c.JSON(http.StatusOK, user.Addresses)
}

func UpdateUserAddress(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	addressID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid address ID"})
	}

	var address models.Address
	if err := c.Bind(&address); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	// If this address is being set as default, unset others first
	if address.IsDefault {
		_, err = database.DB.Collection("users").UpdateOne(
			c.Request().Context(),
			bson.M{"_id": userID},
			bson.M{
				"$set": bson.M{
					"addresses.$[].isDefault": false,
				},
			},
		)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update default status"})
		}
	}

	update := bson.M{
		"$set": bson.M{
			"addresses.$[elem]": bson.M{
				"_id":        addressID,
				"type":       address.Type,
				"street":     address.Street,
				"city":       address.City,
				"state":      address.State,
				"country":    address.Country,
				"postalCode": address.PostalCode,
				"isDefault":  address.IsDefault,
			},
			"updatedAt": time.Now(),
		},
	}

	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem._id": addressID},
		},
	}

	result, err := database.DB.Collection("users").UpdateOne(
		c.Request().Context(),
		bson.M{"_id": userID},
		update,
		options.Update().SetArrayFilters(arrayFilters),
	)

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update address: " + err.Error()})
	}

	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Address not found"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Address updated successfully"})
}

// DeleteUserAddress deletes an address
func DeleteUserAddress(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	addressID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid address ID"})
	}

	update := bson.M{
		"$pull": bson.M{
			"addresses": bson.M{"_id": addressID},
		},
		"$set": bson.M{
			"updatedAt": time.Now(),
		},
	}

	result, err := database.DB.Collection("users").UpdateOne(
		c.Request().Context(),
		bson.M{"_id": userID},
		update,
	)

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete address: " + err.Error()})
	}

	if result.ModifiedCount == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Address not found or already deleted"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Address deleted successfully"})
}
