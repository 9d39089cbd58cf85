package history

// DefaultTables routes each tag to its dedicated table.
var DefaultTables = map[Type]string{
	TypeProject:              "project_history",
	TypeProjectNode:          "project_node_history",
	TypePost:                 "post_history",
	TypePostComment:          "post_comment_history",
	TypeCsPost:               "cs_post_history",
	TypeCsQna:                "cs_qna_history",
	TypeCheckListItem:        "check_list_item_history",
	TypeCheckListItemComment: "check_list_item_comment_history",
	TypeProjectClientMember:  "project_client_member_history",
	TypeProjectDevMember:     "project_dev_member_history",
}
