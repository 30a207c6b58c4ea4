package gateway

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
)

const MsgNoTag = "No tag of that ID"

var tagPlan = &queryPlan[models.TagFilter]{
	fields: []field[models.TagFilter]{
		{name: "tag_id", column: "oc_systemtag.id", match: matchExact,
			value: opt(func(f models.TagFilter) *int { return f.TagID })},
		{name: "tag_name", column: "oc_systemtag.name", match: matchContains,
			value: opt(func(f models.TagFilter) *string { return f.TagName })},
	},
}

func (g *Gateway) listTags(ctx context.Context, filter models.TagFilter) ([]models.Tag, error) {
	q := tagPlan.compose(g.conn(ctx).Model(&models.Tag{}), filter)

	var tags []models.Tag
	if err := q.db.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (g *Gateway) createTag(ctx context.Context, uid string, input models.TagCreate) (*models.Tag, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryTag)

	logger.Info("Received tag", zap.String("uid", uid), zap.String("tag_name", input.TagName))

	tag := models.Tag{TagName: input.TagName}
	if err := g.inTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&tag).Error
	}); err != nil {
		return nil, err
	}

	logger.Info("Created tag", zap.Int("tag_id", tag.TagID))
	return &tag, nil
}

func (g *Gateway) updateTag(ctx context.Context, uid string, input models.TagUpdate) (*models.Tag, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryTag)

	logger.Info("Received tag update", zap.String("uid", uid), zap.Reflect("tag", input))

	var tag models.Tag
	err := g.inTx(ctx, func(tx *gorm.DB) error {
		found, err := lookup(tx, &tag, "id = ?", input.TagID)
		if err != nil {
			return err
		}
		if !found {
			return apierr.NewNotFoundError("", nil)
		}
		if changes := input.Changes(); len(changes) > 0 {
			if err := tx.Model(&tag).Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", input.TagID).Take(&tag).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Updated tag", zap.Int("tag_id", tag.TagID))
	return &tag, nil
}

// deleteTag drops the tag together with every file assignment of it.
func (g *Gateway) deleteTag(ctx context.Context, uid string, tagID int) (*models.Tag, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryTag)

	logger.Info("Received tag delete", zap.String("uid", uid), zap.Int("tag_id", tagID))

	var tag models.Tag
	var unlinked int64
	err := g.inTx(ctx, func(tx *gorm.DB) error {
		found, err := lookup(tx, &tag, "id = ?", tagID)
		if err != nil {
			return err
		}
		if !found {
			return apierr.NewNotFoundError("", nil)
		}
		res := tx.Where("systemtagid = ?", tagID).Delete(&models.TagMapping{})
		if res.Error != nil {
			return res.Error
		}
		unlinked = res.RowsAffected
		return tx.Delete(&tag).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Deleted tag", zap.Int("tag_id", tagID), zap.Int64("unlinked", unlinked))
	return &tag, nil
}

type ITagImpl struct {
	gateway *Gateway
}

func (t *ITagImpl) List(ctx context.Context, filter models.TagFilter) ([]models.Tag, error) {
	return t.gateway.listTags(ctx, filter)
}

func (t *ITagImpl) Create(ctx context.Context, uid string, input models.TagCreate) (*models.Tag, error) {
	return t.gateway.createTag(ctx, uid, input)
}

func (t *ITagImpl) Update(ctx context.Context, uid string, input models.TagUpdate) (*models.Tag, error) {
	return t.gateway.updateTag(ctx, uid, input)
}

func (t *ITagImpl) Delete(ctx context.Context, uid string, tagID int) (*models.Tag, error) {
	return t.gateway.deleteTag(ctx, uid, tagID)
}

func (g *Gateway) GetITag() ITag {
	return &ITagImpl{gateway: g}
}
