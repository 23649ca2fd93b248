// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"rag-chat-go/internal/service"
	"rag-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// KnowledgeHandler 处理知识库管理端的 API 请求。
type KnowledgeHandler struct {
	service service.KnowledgeService
}

// NewKnowledgeHandler 创建一个新的 KnowledgeHandler。
func NewKnowledgeHandler(service service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{service: service}
}

// Upload 处理知识文档上传：multipart 表单，字段 file 与可选的 category。
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少 file 字段", "data": nil})
		return
	}
	category := c.PostForm("category")

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "读取上传文件失败", "data": nil})
		return
	}
	defer file.Close()

	doc, err := h.service.UploadDocument(c.Request.Context(), fileHeader.Filename, file, fileHeader.Size, category)
	if err != nil {
		log.Errorf("[KnowledgeHandler] 上传知识文档失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "上传知识文档失败", "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": doc})
}

// List 返回登记表中的全部知识文档。
func (h *KnowledgeHandler) List(c *gin.Context) {
	docs, err := h.service.ListDocuments(c.Request.Context())
	if err != nil {
		log.Errorf("[KnowledgeHandler] 查询知识文档列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "查询知识文档列表失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": docs})
}

// ListIndex 返回向量索引的全量条目摘要。
func (h *KnowledgeHandler) ListIndex(c *gin.Context) {
	entries, err := h.service.ListIndexEntries(c.Request.Context())
	if err != nil {
		log.Errorf("[KnowledgeHandler] 扫描向量索引失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "扫描向量索引失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": entries})
}

// Delete 级联删除一个知识文档。
func (h *KnowledgeHandler) Delete(c *gin.Context) {
	docID := c.Param("docId")
	existed, err := h.service.DeleteDocument(c.Request.Context(), docID)
	if err != nil {
		log.Errorf("[KnowledgeHandler] 删除知识文档失败, DocID: %s, Error: %v", docID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "删除知识文档失败", "data": nil})
		return
	}
	if !existed {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "知识文档不存在", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{"deleted": true}})
}
