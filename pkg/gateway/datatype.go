package gateway

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
)

var datatypePlan = &queryPlan[models.DatatypeFilter]{
	fields: []field[models.DatatypeFilter]{
		{name: "datatype_id", column: "datatypes.datatype_id", match: matchExact,
			value: opt(func(f models.DatatypeFilter) *int { return f.DatatypeID })},
		{name: "datatype_name", column: "datatypes.name", match: matchContains,
			value: opt(func(f models.DatatypeFilter) *string { return f.DatatypeName })},
		{name: "is_large", column: "datatypes.is_large", match: matchExact,
			value: opt(func(f models.DatatypeFilter) *bool { return f.IsLarge })},
	},
}

func (g *Gateway) listDatatypes(ctx context.Context, filter models.DatatypeFilter) ([]models.Datatype, error) {
	q := datatypePlan.compose(g.conn(ctx).Model(&models.Datatype{}), filter)

	var datatypes []models.Datatype
	if err := q.db.Find(&datatypes).Error; err != nil {
		return nil, err
	}
	return datatypes, nil
}

func (g *Gateway) createDatatype(ctx context.Context, uid string, input models.DatatypeCreate) (*models.Datatype, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryDatatype)

	logger.Info("Received datatype", zap.String("uid", uid), zap.Reflect("datatype", input))

	datatype := models.Datatype{
		DatatypeName: input.DatatypeName,
		IsLarge:      input.IsLarge,
	}
	if err := g.inTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&datatype).Error
	}); err != nil {
		return nil, err
	}

	logger.Info("Created datatype", zap.Int("datatype_id", datatype.DatatypeID))
	return &datatype, nil
}

func (g *Gateway) updateDatatype(ctx context.Context, uid string, input models.DatatypeUpdate) (*models.Datatype, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryDatatype)

	logger.Info("Received datatype update", zap.String("uid", uid), zap.Reflect("datatype", input))

	var datatype models.Datatype
	err := g.inTx(ctx, func(tx *gorm.DB) error {
		found, err := lookup(tx, &datatype, "datatype_id = ?", input.DatatypeID)
		if err != nil {
			return err
		}
		if !found {
			return apierr.NewNotFoundError("", nil)
		}
		if changes := input.Changes(); len(changes) > 0 {
			if err := tx.Model(&datatype).Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.Where("datatype_id = ?", input.DatatypeID).Take(&datatype).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Updated datatype", zap.Int("datatype_id", datatype.DatatypeID))
	return &datatype, nil
}

func (g *Gateway) deleteDatatype(ctx context.Context, uid string, datatypeID int) (*models.Datatype, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryDatatype)

	logger.Info("Received datatype delete", zap.String("uid", uid), zap.Int("datatype_id", datatypeID))

	var datatype models.Datatype
	err := g.inTx(ctx, func(tx *gorm.DB) error {
		found, err := lookup(tx, &datatype, "datatype_id = ?", datatypeID)
		if err != nil {
			return err
		}
		if !found {
			return apierr.NewNotFoundError("", nil)
		}
		return tx.Delete(&datatype).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Deleted datatype", zap.Int("datatype_id", datatypeID))
	return &datatype, nil
}

type IDatatypeImpl struct {
	gateway *Gateway
}

func (d *IDatatypeImpl) List(ctx context.Context, filter models.DatatypeFilter) ([]models.Datatype, error) {
	return d.gateway.listDatatypes(ctx, filter)
}

func (d *IDatatypeImpl) Create(ctx context.Context, uid string, input models.DatatypeCreate) (*models.Datatype, error) {
	return d.gateway.createDatatype(ctx, uid, input)
}

func (d *IDatatypeImpl) Update(ctx context.Context, uid string, input models.DatatypeUpdate) (*models.Datatype, error) {
	return d.gateway.updateDatatype(ctx, uid, input)
}

func (d *IDatatypeImpl) Delete(ctx context.Context, uid string, datatypeID int) (*models.Datatype, error) {
	return d.gateway.deleteDatatype(ctx, uid, datatypeID)
}

func (g *Gateway) GetIDatatype() IDatatype {
	return &IDatatypeImpl{gateway: g}
}
